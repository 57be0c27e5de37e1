package delivery

import (
	"fmt"
	"time"
)

// LatestVersion names the version segment of a storage path when no version
// was requested.
const LatestVersion = "latest"

// StoragePath is the object key of a document rendered at t:
// "{quoteID}/{versionID|latest}_{unixMillis}.pdf".
func StoragePath(quoteID, versionID string, t time.Time) string {
	if versionID == "" {
		versionID = LatestVersion
	}
	return fmt.Sprintf("%s/%s_%d.pdf", quoteID, versionID, t.UnixMilli())
}
