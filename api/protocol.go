package api

const clientBodyMaxSize = 64 * 1024 // 64 KiB

// clientRequest is the create/edit form payload. Pointer fields distinguish
// omitted from empty; category is validated before it becomes a write target.
type clientRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Category *string `json:"category"`
}

type moveRequest struct {
	Category string `json:"category"`
}

type reminderRequest struct {
	Minutes int `json:"minutes"`
}

// messageResponse carries a user-visible transient message.
type messageResponse struct {
	Message string `json:"message"`
}

// confirmResponse asks the user to re-send the delete with confirm=true.
type confirmResponse struct {
	Message string `json:"message"`
	Confirm string `json:"confirm"`
}
