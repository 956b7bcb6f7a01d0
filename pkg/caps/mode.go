package caps

import (
	"fmt"
	"strings"

	"github.com/devicelab-dev/pageflow/pkg/core"
)

// ModeLocal runs against an Appium server on the loopback interface.
const ModeLocal = "local"

// LocalEndpoint is the server URL for ModeLocal.
const LocalEndpoint = "http://127.0.0.1:4723/wd/hub"

// ResolveEndpoint maps an execution mode to a server URL.
// An empty mode means ModeLocal.
func ResolveEndpoint(mode string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeLocal:
		return LocalEndpoint, nil
	default:
		return "", core.ErrUnknownMode.
			WithMessage(fmt.Sprintf("unknown driver mode %q", mode)).
			WithDetails(map[string]interface{}{"mode": mode})
	}
}
