package domain

// Result codes returned by the Vuforia Web Services API.
// See https://library.vuforia.com/web-api/cloud-targets-web-services-api
const (
	ResultSuccess               = "Success"
	ResultTargetCreated         = "TargetCreated"
	ResultAuthenticationFailure = "AuthenticationFailure"
	ResultRequestTimeTooSkewed  = "RequestTimeTooSkewed"
	ResultTargetNameExist       = "TargetNameExist"
	ResultUnknownTarget         = "UnknownTarget"
	ResultBadImage              = "BadImage"
	ResultImageTooLarge         = "ImageTooLarge"
	ResultMetadataTooLarge      = "MetadataTooLarge"
	ResultDateRangeError        = "DateRangeError"
	ResultFail                  = "Fail"
	ResultProjectInactive       = "ProjectInactive"
	// The query API spells its inactive-project code differently.
	ResultInactiveProject = "InactiveProject"
)

// Target processing statuses as reported by the target record endpoints.
const (
	StatusProcessing = "processing"
	StatusSuccess    = "success"
	StatusFailed     = "failed"
)
