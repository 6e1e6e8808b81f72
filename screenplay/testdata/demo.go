package main

import (
	"context"

	"github.com/castanaut/castanaut/director"
	"github.com/castanaut/castanaut/types"
)

func Screenplay(ctx context.Context, d *director.Director) error {
	if err := d.Cursor(ctx, director.To(100, 200), director.Offset(5, 5)); err != nil {
		return err
	}

	d.AtEndOfMovie(func(ctx context.Context) error {
		return d.Say(ctx, "the end")
	})

	err := d.Perform(ctx, "intro", func(ctx context.Context) error {
		if err := d.Click(ctx, types.Left); err != nil {
			return err
		}
		if err := d.Skip(); err != nil {
			return err
		}
		return d.Say(ctx, "never")
	})
	if err != nil {
		return err
	}

	return d.Hit(ctx, types.Return)
}
