package httpapi

import "math/rand/v2"

type defaultPicker struct{}

func (defaultPicker) IntN(n int) int { return rand.IntN(n) }
