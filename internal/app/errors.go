package app

import "errors"

var errNoTriggerTimes = errors.New("no valid trigger times configured")
