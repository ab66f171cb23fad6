package domain

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// Database state tags
const (
	StateWorking         = "working"
	StateProjectInactive = "project_inactive"
)

// Database holds the credentials and state tag for one mock cloud database.
// The server key pair authenticates the management API, the client key pair
// authenticates the query API. Keys are immutable after creation; the state
// tag may be flipped by the controlling test to simulate an inactive project.
type Database struct {
	Name            string
	ServerAccessKey string
	ServerSecretKey string
	ClientAccessKey string
	ClientSecretKey string
	State           string
}

// NewDatabase creates a database with random credentials, mirroring the way
// the target manager provisions a fresh cloud database.
func NewDatabase() *Database {
	return &Database{
		Name:            RandomHex(),
		ServerAccessKey: RandomHex(),
		ServerSecretKey: RandomHex(),
		ClientAccessKey: RandomHex(),
		ClientSecretKey: RandomHex(),
		State:           StateWorking,
	}
}

// RandomHex returns a 32 character lowercase hex string, the format Vuforia
// uses for access keys, target IDs and transaction IDs.
func RandomHex() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}
