package database

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
)

// NewOpenSearchClient builds the cluster client and verifies connectivity
// with an info round trip.
func NewOpenSearchClient(rawURL, username, password string, insecureTLS bool) (*opensearch.Client, error) {
	cfg := opensearch.Config{
		Addresses: []string{rawURL},
		Username:  username,
		Password:  password,
	}

	if insecureTLS {
		cfg.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	client, err := opensearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenSearch client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to ping OpenSearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("OpenSearch ping returned %s", res.Status())
	}

	return client, nil
}
