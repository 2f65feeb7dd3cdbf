//go:build !wasm
// +build !wasm

package gae_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/datastore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ba "github.com/panyam/blogauth"
	"github.com/panyam/blogauth/stores/gae"
	"github.com/panyam/blogauth/stores/storetest"
)

func TestRecordToEntity(t *testing.T) {
	key := datastore.NameKey(gae.KindUser, "user-1", nil)
	entity := gae.RecordToEntity(&ba.UserRecord{
		Fullname: "Ann Lee", Email: "ANN@example.com", Username: "ann", PasswordHash: "digest",
	}, key)
	assert.Equal(t, "ann@example.com", entity.Email)

	record := entity.ToRecord()
	assert.Equal(t, "user-1", record.ID)
	assert.Equal(t, "digest", record.PasswordHash)
	assert.False(t, record.GoogleAuth)
}

// Runs against the Datastore emulator:
//
//	gcloud beta emulators datastore start --no-store-on-disk
//	$(gcloud beta emulators datastore env-init)
func TestDatastoreUserStore(t *testing.T) {
	if os.Getenv("DATASTORE_EMULATOR_HOST") == "" {
		t.Skip("DATASTORE_EMULATOR_HOST not set")
	}
	project := os.Getenv("DATASTORE_PROJECT_ID")
	if project == "" {
		project = "blogauth-test"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := datastore.NewClient(ctx, project)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	n := 0
	storetest.RunUserStoreTests(t, func(t *testing.T) ba.UserStore {
		n++
		return gae.NewUserStore(client, fmt.Sprintf("test-%d-%d", time.Now().UnixNano(), n))
	})
}
