package config

import (
	"time"

	"github.com/jrsteele09/go-finance-client/internal/utils"
)

// Phrases the backend uses when a request carries no valid access token. The
// backend does not reliably attach an error code, so messages are matched too.
const (
	defaultAuthFailureMessage = "Usuário não autenticado!"
	defaultAuthFailureMarker  = "não autenticado"
	defaultAuthFailureCode    = "UNAUTHENTICATED"
)

type Client struct {
	file fileValues
}

var _ ClientConfig = Client{}

func (c Client) GetRequestTimeout() time.Duration {
	return c.file.getDuration("REQUEST_TIMEOUT", 30*time.Second)
}

// GetRefreshOperationName is the operation that bypasses both auth header and retry.
func (c Client) GetRefreshOperationName() string {
	return c.file.get("REFRESH_OPERATION", "RefreshToken")
}

func (c Client) GetAuthFailureMessages() []string {
	return utils.SplitList(c.file.get("AUTH_FAILURE_MESSAGES", defaultAuthFailureMessage))
}

func (c Client) GetAuthFailureMarkers() []string {
	return utils.SplitList(c.file.get("AUTH_FAILURE_MARKERS", defaultAuthFailureMarker))
}

func (c Client) GetAuthFailureCodes() []string {
	return utils.SplitList(c.file.get("AUTH_FAILURE_CODES", defaultAuthFailureCode))
}

func (c Client) GetSingleFlightRefresh() bool {
	return c.file.getBool("SINGLE_FLIGHT_REFRESH", false)
}

func (c Client) GetCacheEnabled() bool {
	return c.file.getBool("CACHE_ENABLED", true)
}
