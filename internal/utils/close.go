package utils

import (
	"io"

	"github.com/MrSnakeDoc/bookmarkhub/internal/logger"
)

// CloseLogged closes c and logs a failure at Warn. For deferred cleanup
// where the error cannot change the outcome anymore.
func CloseLogged(c io.Closer, log logger.Logger, what string) {
	if err := c.Close(); err != nil {
		log.Warn("failed to close "+what, logger.Error(err))
	}
}
