package dto

// AssignmentCommand is either *AssignRequest or *RemoveRequest.
type AssignmentCommand interface {
	assignmentCommand()
}

// AssignRequest links a volunteer to a child.
type AssignRequest struct {
	ChildID     string `json:"childId" validate:"required"`
	VolunteerID string `json:"volunteerId" validate:"required"`
}

// AssignmentCommandBody documents the POST /assignments body: action "assign" uses childId
// and volunteerId, action "remove" uses assignmentId.
type AssignmentCommandBody struct {
	Action       string `json:"action" enums:"assign,remove" validate:"required"`
	ChildID      string `json:"childId,omitempty"`
	VolunteerID  string `json:"volunteerId,omitempty"`
	AssignmentID string `json:"assignmentId,omitempty"`
}

// RemoveRequest deactivates an assignment.
type RemoveRequest struct {
	AssignmentID string `json:"assignmentId" validate:"required"`
}

func (*AssignRequest) assignmentCommand() {}
func (*RemoveRequest) assignmentCommand() {}

// DecodeAssignmentCommand parses a POST /assignments body.
func DecodeAssignmentCommand(body []byte) (AssignmentCommand, error) {
	return decodeAction(body, map[string]func() AssignmentCommand{
		"assign": func() AssignmentCommand { return &AssignRequest{} },
		"remove": func() AssignmentCommand { return &RemoveRequest{} },
	})
}
