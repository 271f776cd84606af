package response

// AppError 统一错误包装
type AppError struct {
	Code    string
	Message string
	Data    interface{}
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Status HTTP 状态
func (e *AppError) Status() int {
	return StatusForCode(e.Code)
}

// WrapError 包装错误
func WrapError(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
