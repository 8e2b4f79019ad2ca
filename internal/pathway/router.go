package pathway

// Pathway names an entry route into foundation capture.
type Pathway string

const (
	PathwayUpload Pathway = "upload"
	PathwayGuided Pathway = "guided"
	PathwayHybrid Pathway = "hybrid"
)

// Assessment is the router's recommendation plus the choices the UI
// layer should surface.
type Assessment struct {
	RecommendedPathway Pathway  `json:"recommendedPathway"`
	Message            string   `json:"message"`
	Options            []string `json:"options"`
}

// Assess picks a pathway from the available signals. Priority order is
// a design contract: an existing theory always routes to hybrid
// (update vs restart), then documents win over blank-slate guidance
// because they carry more information per unit of user effort.
func Assess(hasExistingTheory, hasDocuments, hasPartialTheory bool) Assessment {
	switch {
	case hasExistingTheory:
		return Assessment{
			RecommendedPathway: PathwayHybrid,
			Message:            "You already have a theory of change on file. Update it with new material or start fresh.",
			Options:            []string{"update_existing", "start_fresh"},
		}
	case hasDocuments:
		return Assessment{
			RecommendedPathway: PathwayUpload,
			Message:            "Your documents likely describe much of your theory of change. Upload them and we will extract what we can.",
			Options:            []string{"upload_documents", "guided_conversation"},
		}
	case hasPartialTheory:
		return Assessment{
			RecommendedPathway: PathwayHybrid,
			Message:            "You have a partial theory of change. Continue the guided conversation to fill the gaps, or add documents.",
			Options:            []string{"continue_guided", "upload_documents"},
		}
	default:
		return Assessment{
			RecommendedPathway: PathwayGuided,
			Message:            "We will build your theory of change step by step through a guided conversation.",
			Options:            []string{"guided_conversation", "upload_documents"},
		}
	}
}
