package ingest

import (
	"context"

	"github.com/AngelCh415/jobkpi/internal/utils"
)

// FetchWithRetry downloads a report, retrying transport errors and non-2xx
// answers with exponential backoff.
func FetchWithRetry(ctx context.Context, c HTTPClient, url string, b utils.Backoff) ([]byte, error) {
	var data []byte
	err := b.Do(ctx, func(int) error {
		var err error
		data, err = getBytes(ctx, c, url)
		return err
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}
