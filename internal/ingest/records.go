package ingest

import "github.com/AngelCh415/jobkpi/internal/models"

// ToOpportunities types validated opportunity rows. Every row keeps its full
// column set in Fields.
func ToOpportunities(rows []models.Row, s Schema) []models.Opportunity {
	if len(rows) == 0 {
		return []models.Opportunity{}
	}
	cols := s.resolve(rows[0])
	out := make([]models.Opportunity, 0, len(rows))
	for _, r := range rows {
		get := cellGetter(r, cols)
		out = append(out, models.Opportunity{
			JobID:                 get(ColJob),
			Date:                  get(ColDate),
			Customer:              get(ColCustomer),
			Owner:                 get(ColOwner),
			Status:                get(ColStatus),
			Revenue:               ParseAmount(get(ColRevenue)),
			RevenueText:           get(ColRevenue),
			MembershipOpportunity: isYes(get(ColMembershipOpportunity)),
			MembershipSold:        isYes(get(ColMembershipSold)),
			Fields:                r,
		})
	}
	return out
}

// ToLineItems types validated line item rows.
func ToLineItems(rows []models.Row, s Schema) []models.LineItem {
	if len(rows) == 0 {
		return []models.LineItem{}
	}
	cols := s.resolve(rows[0])
	out := make([]models.LineItem, 0, len(rows))
	for _, r := range rows {
		get := cellGetter(r, cols)
		out = append(out, models.LineItem{
			JobID:    get(ColJob),
			Owner:    get(ColLineOwner),
			Category: get(ColCategory),
			Name:     get(ColLineItem),
			Price:    ParseAmount(get(ColPrice)),
			Fields:   r,
		})
	}
	return out
}

func cellGetter(r models.Row, cols map[string]string) func(string) string {
	return func(name string) string {
		if k, ok := cols[name]; ok {
			return r[k]
		}
		return ""
	}
}
