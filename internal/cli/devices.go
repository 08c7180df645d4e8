package cli

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/fmueller/jabcount/internal/record"
	"github.com/spf13/cobra"
)

func newDevicesCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List recording devices and show which backend listen would use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			backends := record.DefaultBackends(runtime.GOOS)
			if len(backends) == 0 {
				return fmt.Errorf("unsupported OS: %s", runtime.GOOS)
			}
			return listDevices(cmd.Context(), cmd.OutOrStdout(), backends, app.cfg.Backend, app.cfg.Input)
		},
	}
}

// listDevices prints the devices of every backend, or only of preferred when
// one is named, and marks the backend listen would pick.
func listDevices(ctx context.Context, w io.Writer, backends []record.Backend, preferred, input string) error {
	if preferred != "" && preferred != "auto" {
		var named []record.Backend
		for _, backend := range backends {
			if backend.Name() == preferred {
				named = append(named, backend)
			}
		}
		if len(named) == 0 {
			return fmt.Errorf("unknown backend %q", preferred)
		}
		backends = named
	}

	var active string
	if backend, err := record.SelectBackend(backends, preferred); err == nil {
		active = backend.Name()
	}

	for _, backend := range backends {
		header := "== " + backend.Name() + " =="
		if backend.Name() == active {
			header += " (used by listen)"
		}
		fmt.Fprintln(w, header)

		if !backend.Available() {
			fmt.Fprintln(w, "not available on PATH")
			fmt.Fprintln(w)
			continue
		}

		out, err := backend.ListDevices(ctx)
		switch {
		case err != nil:
			fmt.Fprintf(w, "failed to list devices: %v\n", err)
		case out == "":
			fmt.Fprintln(w, "no output")
		default:
			fmt.Fprintln(w, out)
		}
		fmt.Fprintln(w)
	}

	switch {
	case active == "":
		fmt.Fprintln(w, "listen: no recording backend available; install pipewire, alsa-utils or ffmpeg")
	case input == "":
		fmt.Fprintf(w, "listen: records the default input through %s\n", active)
	default:
		fmt.Fprintf(w, "listen: records input %q through %s\n", input, active)
	}
	return nil
}
