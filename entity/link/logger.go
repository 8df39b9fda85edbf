package link

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "link")
