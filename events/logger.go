package events

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "events")
