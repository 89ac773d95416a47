package geo

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "geo")
