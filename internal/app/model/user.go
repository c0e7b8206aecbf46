package model

// UserRef embeds the owning user's identity in a document. Email is
// the only identity the service tracks.
type UserRef struct {
	Email string `bson:"email" json:"email"`
}
