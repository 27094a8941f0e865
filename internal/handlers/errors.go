package handlers

import (
	"net/http"

	"edufinanzas/internal/logger"
)

func respondWithError(w http.ResponseWriter, log *logger.Logger, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Error(logMsg, "status", status, "error", err)
	}

	http.Error(w, userMsg, status)
}
