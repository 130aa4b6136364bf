// Package extract pulls integer operands out of free text.
package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

var ErrOutOfRange = errors.New("number out of range")

var digits = regexp.MustCompile(`\d+`)

// Pair holds the first two integers found in a text, in reading order.
type Pair struct {
	A int64
	B int64
}

// FirstTwo returns the first two digit runs of text. It returns nil when the
// text holds fewer than two. Signs, decimal points and grouping separators
// are not interpreted: "-5 and 3.7" yields (5, 3).
func FirstTwo(text string) (*Pair, error) {
	matches := digits.FindAllString(text, 2)
	if len(matches) < 2 {
		return nil, nil
	}

	a, err := parse(matches[0])
	if err != nil {
		return nil, err
	}

	b, err := parse(matches[1])
	if err != nil {
		return nil, err
	}

	return &Pair{A: a, B: b}, nil
}

func parse(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, s)
	}

	return n, nil
}
