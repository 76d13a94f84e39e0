package health

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"mercator-hq/luminous/pkg/gateway"
)

const (
	featuredStreamsOperation = "FeaturedContentCarouselStreams"
	featuredStreamsHash      = "1fc22cf18e3afe09cb56e10181ff25073818b80f07dfca546c8aa3bc1ad15f76"
)

// ErrNoStreams is returned when discovery yields no eligible stream.
var ErrNoStreams = errors.New("no streams available")

// Querier runs persisted GraphQL queries. *gateway.Gateway satisfies it.
type Querier interface {
	Query(ctx context.Context, q gateway.PersistedQuery, userAgent string, out any) error
}

// DiscoveryConfig configures the featured-streams query.
type DiscoveryConfig struct {
	Language      string
	First         int
	ExcludePrefix string
}

// FeaturedStreamsResponse is the discovery query response.
type FeaturedStreamsResponse struct {
	Data struct {
		FeaturedStreams []FeaturedStream `json:"featuredStreams"`
	} `json:"data"`
}

// FeaturedStream is one carousel entry. Stream is nil for entries that are
// not streams.
type FeaturedStream struct {
	Stream *struct {
		Type        string `json:"type"`
		Broadcaster struct {
			Login string `json:"login"`
		} `json:"broadcaster"`
	} `json:"stream"`
}

// EligibleLogins returns the logins of live entries not starting with
// excludePrefix, in response order.
func EligibleLogins(resp FeaturedStreamsResponse, excludePrefix string) []string {
	var logins []string
	for _, entry := range resp.Data.FeaturedStreams {
		if entry.Stream == nil {
			continue
		}
		if !strings.EqualFold(entry.Stream.Type, "live") {
			continue
		}
		login := entry.Stream.Broadcaster.Login
		if login == "" {
			continue
		}
		if excludePrefix != "" && strings.HasPrefix(login, excludePrefix) {
			continue
		}
		logins = append(logins, login)
	}
	return logins
}

// FindRandomStream queries featured streams and returns one eligible login
// chosen uniformly at random. pick defaults to rand.IntN.
func FindRandomStream(ctx context.Context, q Querier, userAgent string, cfg DiscoveryConfig, pick func(int) int) (string, error) {
	if pick == nil {
		pick = rand.IntN
	}

	query := gateway.PersistedQuery{
		Operation: featuredStreamsOperation,
		Hash:      featuredStreamsHash,
		Variables: map[string]any{
			"language":       cfg.Language,
			"first":          cfg.First,
			"acceptedMature": true,
		},
	}

	var resp FeaturedStreamsResponse
	if err := q.Query(ctx, query, userAgent, &resp); err != nil {
		return "", fmt.Errorf("stream discovery failed: %w", err)
	}

	logins := EligibleLogins(resp, cfg.ExcludePrefix)
	if len(logins) == 0 {
		return "", ErrNoStreams
	}
	return logins[pick(len(logins))], nil
}
