package core

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/rs/zerolog/log"

	"steamshelf/platform"
)

var ErrInvalidAppID = errors.New("invalid app id")

// Executor starts external commands. Tests replace it to record launches
// instead of spawning processes.
type Executor interface {
	Start(ctx context.Context, name string, args ...string) error
}

// RealExecutor spawns the command and reaps it in the background.
type RealExecutor struct{}

func (*RealExecutor) Start(_ context.Context, name string, args ...string) error {
	// Launches outlive the request that triggered them, so the context is not
	// bound to the process.
	cmd := exec.Command(name, args...)
	platform.StripWindow(cmd)
	if err := cmd.Start(); err != nil {
		return err
	}

	go func() {
		if err := cmd.Wait(); err != nil {
			log.Debug().Err(err).Str("cmd", name).Msg("launcher command exited with error")
		}
	}()
	return nil
}

type Launcher struct {
	exec   Executor
	method string
}

func NewLauncher(method string) *Launcher {
	return NewLauncherWithExecutor(method, &RealExecutor{})
}

func NewLauncherWithExecutor(method string, executor Executor) *Launcher {
	return &Launcher{
		exec:   executor,
		method: method,
	}
}

// WithMethod returns a launcher using method with the same executor.
func (l *Launcher) WithMethod(method string) *Launcher {
	return NewLauncherWithExecutor(method, l.exec)
}

// Launch asks the OS to open the game's steam:// URI. It returns once the
// opener process has started; the game itself is not tracked.
func (l *Launcher) Launch(ctx context.Context, game Game) error {
	return l.open(ctx, game, game.LaunchURI())
}

// ShowDetails opens the game's page in the Steam client.
func (l *Launcher) ShowDetails(ctx context.Context, game Game) error {
	return l.open(ctx, game, game.DetailsURI())
}

func (l *Launcher) open(ctx context.Context, game Game, uri string) error {
	if game.AppID <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAppID, game.AppID)
	}

	name, args := platform.OpenURICommand(uri, l.method == LaunchMethodSteam)
	log.Info().Int("appid", game.AppID).Str("cmd", name).Str("uri", uri).Msg("launching game")

	if err := l.exec.Start(ctx, name, args...); err != nil {
		log.Error().Err(err).Int("appid", game.AppID).Msg("failed to launch game")
		return fmt.Errorf("launch %s: %w", game.DisplayName(), err)
	}
	return nil
}
