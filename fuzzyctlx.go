// Driver for quick experiments

package main

import (
	"log/slog"

	"example.com/fuzzyctl/core/config"
	"example.com/fuzzyctl/core/norms"
	"example.com/fuzzyctl/driver/pendulum"
)

func runX() {
	initLogger(true /* verbose */)

	log := slog.Default()

	ctrl, err := config.Pendulum().Build()
	if err != nil {
		log.Error("failed to build controller", slog.Any("error", err))
		return
	}
	in := map[string]float64{pendulum.SignalAngle: 0.2, pendulum.SignalRate: -1}
	res, err := ctrl.Infer(in)
	log.Debug("min/max", slog.Any("inputs", in), slog.Any("outputs", res), slog.Any("error", err))
	ctrl.SetNorm(norms.AlgebraicProduct{})
	ctrl.SetConorm(norms.AlgebraicSum{})
	res, err = ctrl.Infer(in)
	log.Debug("algebraic", slog.Any("inputs", in), slog.Any("outputs", res), slog.Any("error", err))
}
