package mapper

import (
	"campaign-session/internal/dto"
	"campaign-session/internal/entity"
)

func ToSessionStateResponse(st entity.SessionState) dto.SessionStateResponse {
	res := dto.SessionStateResponse{
		Status:       string(st.Status),
		ErrorMessage: st.ErrorMessage,
		IsBusy:       st.IsBusy,
	}
	if st.Profile != nil {
		messages := make([]map[string]interface{}, 0, len(st.Profile.Messages))
		for _, m := range st.Profile.Messages {
			messages = append(messages, m.Clone())
		}
		res.Profile = &dto.ProfileResponse{
			UID:      st.Profile.UID,
			Name:     st.Profile.Name,
			Email:    st.Profile.Email,
			Phone:    st.Profile.Phone,
			Image:    st.Profile.Image,
			Messages: messages,
		}
	}
	return res
}

func ToProfileFields(req dto.UpdateProfileRequest) entity.ProfileFields {
	return entity.ProfileFields{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
		Image: req.Image,
	}
}
