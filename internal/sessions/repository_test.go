package sessions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestLookupFilter_ExcludesExpired(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	f := lookupFilter("abc", now)
	require.Equal(t, "abc", f["tokenHash"])
	require.Equal(t, now, f["expiresAt"].(bson.M)["$gt"])
}
