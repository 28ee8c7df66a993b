package memory

import (
	"testing"

	"github.com/google/uuid"

	"github.com/iudanet/tokenauth/internal/server/storage"
	"github.com/iudanet/tokenauth/internal/server/storage/storagetest"
)

func TestSessionStorage(t *testing.T) {
	storagetest.RunSessionStorageTests(t,
		func(t *testing.T) storage.SessionStorage { return New() },
		func(t *testing.T, _ storage.SessionStorage) string { return uuid.NewString() },
	)
}

func TestUserStorage(t *testing.T) {
	storagetest.RunUserStorageTests(t, func(t *testing.T) storage.UserStorage { return New() })
}
