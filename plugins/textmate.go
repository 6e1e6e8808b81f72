package plugins

import (
	"context"
	"fmt"
	"net/url"

	"github.com/castanaut/castanaut/automation"
	"github.com/castanaut/castanaut/director"
	"github.com/castanaut/castanaut/utils"
)

// TextMate inserts text and opens files in TextMate.
func TextMate() *director.Plugin {
	return &director.Plugin{
		Name: "textmate",
		Directions: func(d *director.Director) map[string]director.DirectionFunc {
			return map[string]director.DirectionFunc{
				"tm_insert_text": func(ctx context.Context, args ...string) (string, error) {
					if err := needArgs("tm_insert_text", args, 1); err != nil {
						return "", err
					}
					return d.ExecuteScript(ctx, fmt.Sprintf(`
tell application "TextMate"
  insert "%s"
end tell`, automation.EscapeDoubleQuotes(args[0])))
				},
				"tm_open_file": func(ctx context.Context, args ...string) (string, error) {
					if err := needArgs("tm_open_file", args, 1); err != nil {
						return "", err
					}
					line, err := intArg(args, 1, 0)
					if err != nil {
						return "", err
					}
					column, err := intArg(args, 2, 0)
					if err != nil {
						return "", err
					}
					return d.ExecuteScript(ctx, textMateURL(fmt.Sprintf("url=file://%s&line=%d&column=%d",
						(&url.URL{Path: args[0]}).EscapedPath(), line, column)))
				},
				"tm_move_to": func(ctx context.Context, args ...string) (string, error) {
					line, err := intArg(args, 0, 0)
					if err != nil {
						return "", err
					}
					column, err := intArg(args, 1, 0)
					if err != nil {
						return "", err
					}
					return d.ExecuteScript(ctx, textMateURL(fmt.Sprintf("line=%d&column=%d", line, column)))
				},
			}
		},
	}
}

func textMateURL(query string) string {
	utils.Verbose("textmate: txmt://open?%s", query)
	return fmt.Sprintf(`
tell application "TextMate"
  get url "txmt://open?%s"
end tell`, query)
}
