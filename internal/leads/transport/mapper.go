package transport

import "salesops_backend/internal/leads/repository"

func NewLeadResponse(lead repository.Lead) LeadResponse {
	return LeadResponse{
		ID:              lead.ID,
		FullName:        lead.FullName,
		TaxID:           lead.TaxID,
		Phones:          lead.Phones,
		Locality:        lead.Locality,
		ObraSocial:      lead.ObraSocial,
		Age:             lead.Age,
		SourceFile:      lead.SourceFile,
		BatchID:         lead.BatchID,
		Exported:        lead.Exported,
		IsUsed:          lead.IsUsed,
		Status:          lead.Status,
		AssignedTo:      lead.AssignedTo,
		AssignedAt:      lead.AssignedAt,
		LastInteraction: lead.LastInteraction,
		CreatedAt:       lead.CreatedAt,
		UpdatedAt:       lead.UpdatedAt,
	}
}

func NewLeadResponses(leads []repository.Lead) []LeadResponse {
	out := make([]LeadResponse, 0, len(leads))
	for _, lead := range leads {
		out = append(out, NewLeadResponse(lead))
	}
	return out
}

func NewInteractionResponse(item repository.Interaction) InteractionResponse {
	return InteractionResponse{
		ID:           item.ID,
		AssignmentID: item.AssignmentID,
		Status:       item.Status,
		Note:         item.Note,
		ActorID:      item.ActorID,
		CreatedAt:    item.CreatedAt,
	}
}

func NewInteractionResponses(items []repository.Interaction) []InteractionResponse {
	out := make([]InteractionResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewInteractionResponse(item))
	}
	return out
}
