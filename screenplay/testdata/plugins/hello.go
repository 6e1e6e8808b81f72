package main

import (
	"context"

	"github.com/castanaut/castanaut/director"
)

func Directions(d *director.Director) map[string]director.DirectionFunc {
	return map[string]director.DirectionFunc{
		"hello": func(ctx context.Context, args ...string) (string, error) {
			return "", d.Say(ctx, "hello "+args[0])
		},
	}
}

func Apps() map[string]director.AppHooks {
	return map[string]director.AppHooks{
		"Hello": {EnsureWindow: "make new window"},
	}
}
