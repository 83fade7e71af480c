package runner

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/Daave2/nps-scraper-sub000/internal/logger"
)

// ExecReauthenticator refreshes the renderer session by running an external
// login command, typically the headless browser's login script.
type ExecReauthenticator struct {
	Command []string
	Log     *logger.Logger
}

func (e ExecReauthenticator) Reauthenticate(ctx context.Context) error {
	if len(e.Command) == 0 {
		return fmt.Errorf("no re-authentication command configured")
	}

	e.Log.Info("running re-authentication command", "command", e.Command[0])

	cmd := exec.CommandContext(ctx, e.Command[0], e.Command[1:]...)

	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("re-authentication command failed: %w: %s", err, string(out))
	}

	return nil
}
