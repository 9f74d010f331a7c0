package checks

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/wimforge/wimforge/internal/buildconfig"
	"github.com/wimforge/wimforge/internal/model"
)

// DialFunc opens a connection the way net.Dialer.DialContext does.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Endpoints the download stages depend on. Reaching any one of them is
// enough to call the network usable.
var updateEndpoints = []string{
	"download.windowsupdate.com:443",
	"go.microsoft.com:443",
	"catalog.update.microsoft.com:443",
}

const networkDialTimeout = 2 * time.Second

const networkRemediation = `1. Verify the host has a working internet connection.
2. If a proxy is required, configure WinHTTP: netsh winhttp set proxy <proxy>:<port>
3. Allow outbound HTTPS to *.windowsupdate.com and *.microsoft.com.
4. Re-run the preflight.`

// Network verifies the Microsoft download endpoints are reachable. Only
// runs when a requested feature downloads content; otherwise it is skipped.
func Network(ctx context.Context, dial DialFunc, features buildconfig.Features) model.CheckResult {
	builder := model.NewResult(NameNetwork)

	if !features.NeedsNetwork() {
		return builder.Skip("no requested feature downloads content")
	}

	if dial == nil {
		dialer := &net.Dialer{}
		dial = dialer.DialContext
	}

	reachable := 0
	for _, endpoint := range updateEndpoints {
		dialCtx, cancel := context.WithTimeout(ctx, networkDialTimeout)
		conn, err := dial(dialCtx, "tcp", endpoint)
		cancel()
		if err != nil {
			builder.Detail(endpoint, false)
			continue
		}
		_ = conn.Close()
		builder.Detail(endpoint, true)
		reachable++
	}

	if reachable == 0 {
		return builder.Fail(
			fmt.Sprintf("none of the %d update endpoints are reachable", len(updateEndpoints)),
			networkRemediation)
	}

	return builder.Pass(fmt.Sprintf("%d of %d update endpoints reachable", reachable, len(updateEndpoints)))
}
