package artifacts

// UserVisibleError marks an expected generation failure: the athlete's data
// genuinely lacks what the generator needs (e.g. no activity has heart-rate
// data). The builder swallows it quietly: no artifact is written for that
// key, and it is never reported as an operator error.
type UserVisibleError struct {
	Message string
}

func (e *UserVisibleError) Error() string {
	return e.Message
}

// NoData returns a UserVisibleError with the given message.
func NoData(message string) error {
	return &UserVisibleError{Message: message}
}
