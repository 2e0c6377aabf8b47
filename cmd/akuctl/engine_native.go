//go:build akumuli && cgo

package main

import (
	"github.com/expenses/akumuli-go/engine"
	"github.com/expenses/akumuli-go/engine/native"
)

func init() {
	engineFactories["native"] = func() (engine.Engine, error) {
		return native.New(), nil
	}
}
