package event

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "event")
