package email

const (
	subjectBatchAssigned = "Tenés nuevos leads asignados"
	subjectRunSummary    = "Resumen de la distribución diaria"
)
