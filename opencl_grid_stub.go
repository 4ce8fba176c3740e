//go:build !opencl

package main

import (
	"errors"

	"ARG/internal/grid"
)

type openCLGridUpdater struct {
	cpu *grid.Engine
}

func newOpenCLGridUpdater(_ *grid.Engine) (*openCLGridUpdater, error) {
	return nil, errors.New("OpenCL support is not enabled; rebuild with -tags opencl")
}

func (u *openCLGridUpdater) Update(g *grid.Instance, src grid.SpectrumSource) error {
	return u.cpu.Update(g, src)
}

func (u *openCLGridUpdater) Close() {}

func (u *openCLGridUpdater) DeviceName() string { return "" }
