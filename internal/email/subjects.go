package email

const (
	subjectReportFmt    = "Briz-L %s report %s"
	subjectHotLeadFmt   = "Hot lead %s (score %d)"
	subjectUrgentPrefix = "URGENT: "
)
