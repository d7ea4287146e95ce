package errors

// Variant is the visual style of a notification
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Notification is the single toast-style message shown for a failed action.
type Notification struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Variant     Variant `json:"variant"`
}

func destructive(title, description string) Notification {
	return Notification{Title: title, Description: description, Variant: VariantDestructive}
}

// NotificationFor returns the notification to show for err. Errors outside
// the AppError taxonomy get a generic message.
func NotificationFor(err error) Notification {
	if appErr := GetAppError(err); appErr != nil && appErr.Notification.Title != "" {
		return appErr.Notification
	}
	return destructive("Error", "Something went wrong. Please try again.")
}
