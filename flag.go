package main

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/duration"
)

var (
	shorthandFlagRe = regexp.MustCompile(`unknown shorthand flag: '.*' in (-\w)`)
	invalidArgRe    = regexp.MustCompile(`invalid argument ".*" for "(.*)" flag: .*`)
)

func newFlagParseError(err error) flagParseError {
	s := err.Error()
	fe := flagParseError{err: err, reason: s}
	switch {
	case strings.HasPrefix(s, "flag needs an argument:"):
		fe.reason = "Flag %s needs an argument."
		if i := strings.LastIndex(s, " -"); i >= 0 {
			fe.flag = s[i+1:]
		}
	case strings.HasPrefix(s, "unknown flag:"):
		fe.reason = "Flag %s is missing."
		fe.flag = strings.TrimPrefix(s, "unknown flag: ")
	case strings.HasPrefix(s, "unknown shorthand flag:"):
		fe.reason = "Short flag %s is missing."
		if parts := shorthandFlagRe.FindStringSubmatch(s); len(parts) > 1 {
			fe.flag = parts[1]
		}
	case strings.HasPrefix(s, "invalid argument"):
		fe.reason = "Flag %s has an invalid argument."
		if parts := invalidArgRe.FindStringSubmatch(s); len(parts) > 1 {
			fe.flag = parts[1]
		}
	}
	return fe
}

type flagParseError struct {
	err    error
	reason string
	flag   string
}

func (f flagParseError) Error() string {
	return f.err.Error()
}

func (f flagParseError) ReasonFormat() string {
	return f.reason
}

func (f flagParseError) Flag() string {
	return f.flag
}

var errNegativeDuration = errors.New("duration cannot be negative")

func newDurationFlag(val time.Duration, p *time.Duration) *durationFlag {
	*p = val
	return (*durationFlag)(p)
}

// durationFlag accepts the units of time.ParseDuration plus days and weeks.
type durationFlag time.Duration

func (d *durationFlag) Set(s string) error {
	v, err := duration.Parse(s)
	if err != nil {
		return err //nolint:wrapcheck
	}
	if v < 0 {
		return errNegativeDuration
	}
	*d = durationFlag(v)
	return nil
}

func (d *durationFlag) String() string {
	return time.Duration(*d).String()
}

func (*durationFlag) Type() string {
	return "duration"
}
