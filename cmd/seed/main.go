package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dkang/foodlane-backend/config"
	"github.com/dkang/foodlane-backend/internal/db"
	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson"
)

// Imports food listings from an XLSX sheet with the columns
// name, image, price, quantity, category, description, owner email.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path>")
	}
	filePath := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	ctx := context.Background()
	store, err := db.New(ctx, &cfg.Mongo)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer store.Close(ctx)

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	foods, skipped, err := readFoodsFromXLSX(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("Total foods to import: %d (skipped %d invalid rows)\n", len(foods), skipped)
	if len(foods) == 0 {
		fmt.Println("Nothing to import.")
		return
	}

	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	imported := 0
	duplicates := 0
	for _, food := range foods {
		count, err := store.Foods.CountDocuments(ctx, bson.M{
			"name":          food["name"],
			"addedBy.email": food["addedBy"].(bson.M)["email"],
		})
		if err != nil {
			log.Fatal("Failed to check for duplicates:", err)
		}
		if count > 0 {
			duplicates++
			continue
		}

		if _, err := store.Foods.InsertOne(ctx, food); err != nil {
			log.Fatal("Failed to insert food:", err)
		}
		imported++
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Total foods imported: %d (skipped %d duplicates)\n", imported, duplicates)
}

func readFoodsFromXLSX(filePath string) ([]bson.M, int, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, 0, fmt.Errorf("no sheets found in XLSX file")
	}
	fmt.Printf("Reading sheet: %s\n", sheetName)

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("no data found in XLSX file")
	}

	var foods []bson.M
	seen := make(map[string]bool)
	skipped := 0

	for i, row := range rows {
		// The first row is the header.
		if i == 0 {
			fmt.Printf("Headers: %v\n", row)
			continue
		}
		if len(row) < 7 {
			skipped++
			continue
		}

		name := strings.TrimSpace(row[0])
		image := strings.TrimSpace(row[1])
		priceStr := strings.TrimSpace(row[2])
		quantityStr := strings.TrimSpace(row[3])
		category := strings.TrimSpace(row[4])
		description := strings.TrimSpace(row[5])
		ownerEmail := strings.TrimSpace(row[6])

		if name == "" || image == "" || ownerEmail == "" {
			skipped++
			continue
		}

		key := name + "|" + ownerEmail
		if seen[key] {
			skipped++
			continue
		}
		seen[key] = true

		price, err := strconv.ParseFloat(priceStr, 64)
		if err != nil || price < 0 {
			skipped++
			continue
		}
		quantity, err := strconv.ParseInt(quantityStr, 10, 64)
		if err != nil || quantity < 0 {
			skipped++
			continue
		}

		now := time.Now().UnixMilli()
		foods = append(foods, bson.M{
			"name":          name,
			"image":         image,
			"price":         price,
			"quantity":      quantity,
			"category":      category,
			"description":   description,
			"addedBy":       bson.M{"email": ownerEmail},
			"purchaseCount": int64(0),
			"createAt":      now,
			"updateAt":      now,
		})
	}

	return foods, skipped, nil
}
