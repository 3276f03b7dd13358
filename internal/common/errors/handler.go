// internal/common/errors/handler.go
package errors

// FailureHandler normalizes and logs facade failures.
type FailureHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewFailureHandler(logger Logger) *FailureHandler {
	return &FailureHandler{logger: logger}
}

// Handle normalizes err for operation op, writes the diagnostic record and
// returns the normalized failure. A nil err yields nil.
func (h *FailureHandler) Handle(op string, err error) *StandardError {
	stdErr := Normalize(op, err)
	if stdErr == nil {
		return nil
	}
	h.logError(stdErr)
	return stdErr
}

func (h *FailureHandler) logError(stdErr *StandardError) {
	fields := map[string]interface{}{
		"operation":     stdErr.Operation,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}
	for k, v := range stdErr.Metadata {
		fields[k] = v
	}
	h.logger.Error("operation failed", fields)
}
