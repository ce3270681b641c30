package updater

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/whitesource/wss-agent/src/service"
)

var separator = strings.Repeat("-", 72)

// LogResult writes a human-readable summary of an update result.
func LogResult(log logrus.FieldLogger, result *service.UpdateResult) {
	if result == nil {
		return
	}

	log.Info("")
	log.Info(separator)
	log.Info("Inventory Update Result for " + result.Organization)
	log.Info(separator)

	if len(result.CreatedProjects) > 0 {
		log.Info("")
		log.Info("Newly Created Projects:")
		for _, name := range result.CreatedProjects {
			log.Info("* " + name)
		}
	}

	if len(result.UpdatedProjects) > 0 {
		log.Info("")
		log.Info("Updated Projects:")
		for _, name := range result.UpdatedProjects {
			log.Info("* " + name)
		}
	}

	if strings.TrimSpace(result.RequestToken) != "" {
		log.Info("")
		log.Info("Support Token: " + result.RequestToken)
	} else {
		log.Info("")
	}
}
