package sensor

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "sensor")
