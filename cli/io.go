package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/castanaut/castanaut/commands"
	"github.com/spf13/cobra"
)

var ioCmd = &cobra.Command{
	Use:   "io",
	Short: "Perform single directions",
	Long:  `Performs one direction at a time: moving and clicking the mouse, typing, hitting keys, launching applications and speaking.`,
}

// parseInts splits "a,b[,c...]" into exactly n integers.
func parseInts(s string, n int, names string) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("invalid format. Expected '%s', got '%s'", names, s)
	}

	out := make([]int, n)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid values. %s must be integers, got '%s'", names, s)
		}
		out[i] = v
	}
	return out, nil
}

// fail prints err as an error response and returns it.
func fail(err error) error {
	return respond(commands.NewErrorResponse(err))
}

var ioCursorCmd = &cobra.Command{
	Use:   "cursor [x,y]",
	Short: "Move the mouse to the given coordinates",
	Long:  `Moves the mouse pointer to an absolute position. Coordinates should be provided as a single string "x,y".`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		xy, err := parseInts(args[0], 2, "x,y")
		if err != nil {
			return fail(err)
		}
		return respond(commands.CursorCommand(commandContext(cmd), commands.CursorRequest{X: xy[0], Y: xy[1]}))
	},
}

var ioByCmd = &cobra.Command{
	Use:   "by [dx,dy]",
	Short: "Move the mouse relative to where it is",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := parseInts(args[0], 2, "dx,dy")
		if err != nil {
			return fail(err)
		}
		return respond(commands.MoveByCommand(commandContext(cmd), commands.MoveByRequest{DX: d[0], DY: d[1]}))
	},
}

var ioLocationCmd = &cobra.Command{
	Use:   "location",
	Short: "Print the mouse position",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return respond(commands.CursorLocationCommand(commandContext(cmd)))
	},
}

func clickCmd(use, short string, count int) *cobra.Command {
	c := &cobra.Command{
		Use:   use + " [button]",
		Short: short,
		Long:  `Clicks where the mouse is. The button is left (default) or right.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := commands.ClickRequest{Count: count}
			if len(args) == 1 {
				req.Button = args[0]
			}
			if count == 0 {
				req.Count = clickCount
			}
			return respond(commands.ClickCommand(commandContext(cmd), req))
		},
	}
	if count == 0 {
		c.Flags().IntVar(&clickCount, "count", 1, "number of clicks (1, 2 or 3)")
	}
	return c
}

func buttonCmd(use, short string, fn func(context.Context, commands.ButtonRequest) *commands.CommandResponse) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [button]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := commands.ButtonRequest{}
			if len(args) == 1 {
				req.Button = args[0]
			}
			return respond(fn(commandContext(cmd), req))
		},
	}
}

var ioDragCmd = &cobra.Command{
	Use:   "drag [x,y]",
	Short: "Drag from the mouse position to the given coordinates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		xy, err := parseInts(args[0], 2, "x,y")
		if err != nil {
			return fail(err)
		}
		return respond(commands.DragCommand(commandContext(cmd), commands.CursorRequest{X: xy[0], Y: xy[1]}))
	},
}

var ioTypeCmd = &cobra.Command{
	Use:   "type [text]",
	Short: "Type text into the focused control",
	Long:  `Types text one character at a time. --speed is in characters per second.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := commands.TypeRequest{Text: args[0], AppleScript: appleScript}
		if cmd.Flags().Changed("speed") {
			req.Speed = &typeSpeed
		}
		return respond(commands.TypeCommand(commandContext(cmd), req))
	},
}

var ioHitCmd = &cobra.Command{
	Use:   "hit [key] [modifiers...]",
	Short: "Hit a key, optionally with modifiers",
	Long:  `Hits a named key (see 'castanaut keys'), a single character or a 0x key code. Modifiers are command, control, option and shift.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return respond(commands.HitCommand(commandContext(cmd), commands.HitRequest{
			Key:       args[0],
			Modifiers: args[1:],
		}))
	},
}

var ioLaunchCmd = &cobra.Command{
	Use:   "launch [app] [left,top,width,height]",
	Short: "Launch or activate an application",
	Long:  `Activates an application and optionally moves its front window. The bounds may be "left,top" or "left,top,width,height".`,
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := commands.LaunchRequest{App: args[0]}
		if len(args) == 2 {
			n := strings.Count(args[1], ",") + 1
			if n != 2 && n != 4 {
				return fail(fmt.Errorf("invalid bounds. Expected 'left,top' or 'left,top,width,height', got '%s'", args[1]))
			}
			b, err := parseInts(args[1], n, "left,top,width,height")
			if err != nil {
				return fail(err)
			}
			req.Left, req.Top = &b[0], &b[1]
			if n == 4 {
				req.Width, req.Height = &b[2], &b[3]
			}
		}
		return respond(commands.LaunchCommand(commandContext(cmd), req))
	},
}

var ioScreenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Print the screen size",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return respond(commands.ScreenSizeCommand(commandContext(cmd)))
	},
}

var ioSayCmd = &cobra.Command{
	Use:   "say [text]",
	Short: "Speak text aloud",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return respond(commands.SayCommand(commandContext(cmd), commands.SayRequest{Text: args[0]}))
	},
}

var ioDirectionCmd = &cobra.Command{
	Use:   "direction [name] [args...]",
	Short: "Perform a plugin or backend direction by name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return respond(commands.DirectionCommand(commandContext(cmd), commands.DirectionRequest{
			Name: args[0],
			Args: args[1:],
		}))
	},
}

func init() {
	rootCmd.AddCommand(ioCmd)

	ioCmd.AddCommand(ioCursorCmd)
	ioCmd.AddCommand(ioByCmd)
	ioCmd.AddCommand(ioLocationCmd)
	ioCmd.AddCommand(clickCmd("click", "Click a mouse button", 0))
	ioCmd.AddCommand(clickCmd("doubleclick", "Double click a mouse button", 2))
	ioCmd.AddCommand(clickCmd("tripleclick", "Triple click a mouse button", 3))
	ioCmd.AddCommand(buttonCmd("mousedown", "Press and hold a mouse button", commands.MouseDownCommand))
	ioCmd.AddCommand(buttonCmd("mouseup", "Release a mouse button", commands.MouseUpCommand))
	ioCmd.AddCommand(ioDragCmd)
	ioCmd.AddCommand(ioTypeCmd)
	ioCmd.AddCommand(ioHitCmd)
	ioCmd.AddCommand(ioLaunchCmd)
	ioCmd.AddCommand(ioScreenCmd)
	ioCmd.AddCommand(ioSayCmd)
	ioCmd.AddCommand(ioDirectionCmd)

	ioTypeCmd.Flags().IntVar(&typeSpeed, "speed", 0, "characters per second (default: the backend's typing speed)")
	ioTypeCmd.Flags().BoolVar(&appleScript, "applescript", false, "type through AppleScript instead of the helper")
}
