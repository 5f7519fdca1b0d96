package middleware

import (
	"net/http"

	apperrors "github.com/openclaw/wa-gateway-go/internal/errors"
	"github.com/openclaw/wa-gateway-go/internal/httputil"
)

func writeError(w http.ResponseWriter, err *apperrors.AppError) {
	httputil.WriteError(w, err)
}
