// Package domain defines the catalog entities and the validation rules that
// apply to them. Entities are plain structs persisted as JSON documents; the
// ETag field mirrors the store's per-document revision token.
package domain

import (
	"time"
)

// ComponentType classifies a component for compliance purposes
type ComponentType string

const (
	ComponentTypeOSS            ComponentType = "oss"
	ComponentTypeCOTS           ComponentType = "cots"
	ComponentTypeInternal       ComponentType = "internal"
	ComponentTypeInnerSource    ComponentType = "inner_source"
	ComponentTypeService        ComponentType = "service"
	ComponentTypeFreeware       ComponentType = "freeware"
	ComponentTypeCodeSnippet    ComponentType = "code_snippet"
)

// ReleaseRelationship describes how one release relates to another
type ReleaseRelationship string

const (
	RelationshipContained         ReleaseRelationship = "contained"
	RelationshipReferred          ReleaseRelationship = "referred"
	RelationshipUnknown           ReleaseRelationship = "unknown"
	RelationshipDynamicallyLinked ReleaseRelationship = "dynamically_linked"
	RelationshipStaticallyLinked  ReleaseRelationship = "statically_linked"
	RelationshipSideBySide        ReleaseRelationship = "side_by_side"
	RelationshipStandalone        ReleaseRelationship = "standalone"
	RelationshipInternalUse       ReleaseRelationship = "internal_use"
	RelationshipOptional          ReleaseRelationship = "optional"
	RelationshipToBeReplaced      ReleaseRelationship = "to_be_replaced"
	RelationshipCodeSnippet       ReleaseRelationship = "code_snippet"
)

// ClearingState is the license-clearing lifecycle state of a release. It is
// partly derived: the presence and check status of clearing-report
// attachments drive the REPORT_AVAILABLE / APPROVED transitions.
type ClearingState string

const (
	ClearingStateNew             ClearingState = "new_clearing"
	ClearingStateSentToTool      ClearingState = "sent_to_clearing_tool"
	ClearingStateUnderClearing   ClearingState = "under_clearing"
	ClearingStateReportAvailable ClearingState = "report_available"
	ClearingStateApproved        ClearingState = "approved"
)

// MainlineState flags whether a release belongs to the mainline product line
type MainlineState string

const (
	MainlineStateOpen     MainlineState = "open"
	MainlineStateMainline MainlineState = "mainline"
	MainlineStateSpecific MainlineState = "specific"
	MainlineStatePhaseout MainlineState = "phaseout"
	MainlineStateDenied   MainlineState = "denied"
)

// EccStatus is the export-control assessment status
type EccStatus string

const (
	EccStatusOpen       EccStatus = "open"
	EccStatusInProgress EccStatus = "in_progress"
	EccStatusApproved   EccStatus = "approved"
	EccStatusRejected   EccStatus = "rejected"
)

// AttachmentType classifies an attachment
type AttachmentType string

const (
	AttachmentTypeDocument          AttachmentType = "document"
	AttachmentTypeSource            AttachmentType = "source"
	AttachmentTypeBinary            AttachmentType = "binary"
	AttachmentTypeClearingReport    AttachmentType = "clearing_report"
	AttachmentTypeComponentLicense  AttachmentType = "component_license_info"
	AttachmentTypeLicenseAgreement  AttachmentType = "license_agreement"
	AttachmentTypeScreenshot        AttachmentType = "screenshot"
	AttachmentTypeOther             AttachmentType = "other"
)

// CheckStatus is the review state of an attachment
type CheckStatus string

const (
	CheckStatusNotChecked CheckStatus = "not_checked"
	CheckStatusAccepted   CheckStatus = "accepted"
	CheckStatusRejected   CheckStatus = "rejected"
)

// ModerationState is the lifecycle state of a moderation request
type ModerationState string

const (
	ModerationStatePending    ModerationState = "pending"
	ModerationStateInProgress ModerationState = "in_progress"
	ModerationStateApproved   ModerationState = "approved"
	ModerationStateRejected   ModerationState = "rejected"
)

// Operation identifies a change-log operation kind
type Operation string

const (
	OperationCreate           Operation = "create"
	OperationUpdate           Operation = "update"
	OperationDelete           Operation = "delete"
	OperationMergeComponent   Operation = "merge_component"
	OperationMergeRelease     Operation = "merge_release"
	OperationSplitComponent   Operation = "split_component"
	OperationComponentUpdate  Operation = "component_update"
	OperationReleaseCreate    Operation = "release_create"
	OperationReleaseUpdate    Operation = "release_update"
	OperationReleaseDelete    Operation = "release_delete"
	OperationModerationAccept Operation = "moderation_accept"
)

// DocumentKind identifies the entity kind a satellite record points at
type DocumentKind string

const (
	DocumentKindComponent             DocumentKind = "component"
	DocumentKindRelease               DocumentKind = "release"
	DocumentKindProject               DocumentKind = "project"
	DocumentKindVendor                DocumentKind = "vendor"
	DocumentKindAttachmentUsage       DocumentKind = "attachment_usage"
	DocumentKindVulnerabilityRelation DocumentKind = "vulnerability_relation"
	DocumentKindProjectRating         DocumentKind = "project_rating"
	DocumentKindModeration            DocumentKind = "moderation"
)

// RequestStatus is the outcome of a catalog operation. Validation and
// governance outcomes are statuses, never errors, so callers can render them
// directly.
type RequestStatus string

const (
	StatusSuccess             RequestStatus = "success"
	StatusFailure             RequestStatus = "failure"
	StatusAccessDenied        RequestStatus = "access_denied"
	StatusInUse               RequestStatus = "in_use"
	StatusDuplicate           RequestStatus = "duplicate"
	StatusDuplicateAttachment RequestStatus = "duplicate_attachment"
	StatusNamingError         RequestStatus = "naming_error"
	StatusInvalidInput        RequestStatus = "invalid_input"
	StatusModerationPending   RequestStatus = "moderation_pending"
)

// Attachment is attachment metadata carried on a component or release. The
// content itself lives in an external content-addressed store and is
// referenced by AttachmentContentID (sha1-derived).
type Attachment struct {
	AttachmentContentID string         `json:"attachment_content_id"`
	Filename            string         `json:"filename"`
	Type                AttachmentType `json:"type"`
	CheckStatus         CheckStatus    `json:"check_status"`
	Sha1                string         `json:"sha1,omitempty"`
	CreatedBy           string         `json:"created_by,omitempty"`
	CreatedOn           string         `json:"created_on,omitempty"`
}

// Vendor is a supplier record referenced from releases
type Vendor struct {
	ID        string `json:"id"`
	Shortname string `json:"shortname"`
	Fullname  string `json:"fullname,omitempty"`
	URL       string `json:"url,omitempty"`
	ETag      int64  `json:"-"`
}

// Component is a catalog entry grouping releases of one piece of software.
//
// Languages, OperatingSystems, SoftwarePlatforms, VendorNames and
/// MainLicenseIDs are derived: they must always equal the union of the
// corresponding field over the linked releases and are recomputed, never
// authored.
type Component struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Description     string            `json:"description,omitempty"`
	Categories      []string          `json:"categories,omitempty"`
	ComponentType   ComponentType     `json:"component_type,omitempty"`
	Homepage        string            `json:"homepage,omitempty"`
	Blog            string            `json:"blog,omitempty"`
	Wiki            string            `json:"wiki,omitempty"`
	MailingList     string            `json:"mailing_list,omitempty"`
	DefaultVendorID string            `json:"default_vendor_id,omitempty"`
	ComponentOwner  string            `json:"component_owner,omitempty"`
	OwnerGroup      string            `json:"owner_group,omitempty"`
	OwnerCountry    string            `json:"owner_country,omitempty"`
	ExternalIDs     map[string]string `json:"external_ids,omitempty"`
	AdditionalData  map[string]string `json:"additional_data,omitempty"`

	ReleaseIDs []string `json:"release_ids,omitempty"`

	// Derived from releases, see type comment.
	Languages         []string `json:"languages,omitempty"`
	OperatingSystems  []string `json:"operating_systems,omitempty"`
	SoftwarePlatforms []string `json:"software_platforms,omitempty"`
	VendorNames       []string `json:"vendor_names,omitempty"`
	MainLicenseIDs    []string `json:"main_license_ids,omitempty"`

	Attachments []Attachment        `json:"attachments,omitempty"`
	Moderators  []string            `json:"moderators,omitempty"`
	Subscribers []string            `json:"subscribers,omitempty"`
	Roles       map[string][]string `json:"roles,omitempty"`

	CreatedBy string `json:"created_by,omitempty"`
	CreatedOn string `json:"created_on,omitempty"`
	ETag      int64  `json:"-"`
}

// ClearingInformation carries the license-clearing details of a release
type ClearingInformation struct {
	BinariesOriginalFromCommunity bool   `json:"binaries_original_from_community,omitempty"`
	BinariesSelfMade              bool   `json:"binaries_self_made,omitempty"`
	ComponentLicenseInformation   bool   `json:"component_license_information,omitempty"`
	SourceCodeDelivery            bool   `json:"source_code_delivery,omitempty"`
	SourceCodeOriginal            bool   `json:"source_code_original,omitempty"`
	SourceCodeToolMade            bool   `json:"source_code_tool_made,omitempty"`
	SourceCodeSelfMade            bool   `json:"source_code_self_made,omitempty"`
	ScreenshotOfWebsite           bool   `json:"screenshot_of_website,omitempty"`
	FinalizedLicenseScanReport    bool   `json:"finalized_license_scan_report,omitempty"`
	LicenseScanReportResult       bool   `json:"license_scan_report_result,omitempty"`
	LegalEvaluation               bool   `json:"legal_evaluation,omitempty"`
	LicenseAgreement              bool   `json:"license_agreement,omitempty"`
	Scanned                       string `json:"scanned,omitempty"`
	ClearingStandard              string `json:"clearing_standard,omitempty"`
	ExternalURL                   string `json:"external_url,omitempty"`
	Comment                       string `json:"comment,omitempty"`
	RequestID                     string `json:"request_id,omitempty"`
	AdditionalRequestInfo         string `json:"additional_request_info,omitempty"`
	EvaluationStart               string `json:"evaluation_start,omitempty"`
	Evaluated                     string `json:"evaluated,omitempty"`
	ExternalSupplierID            string `json:"external_supplier_id,omitempty"`
	CountOfSecurityVulnerabilities int   `json:"count_of_security_vulnerabilities,omitempty"`
}

// EccInformation carries the export-control classification of a release
type EccInformation struct {
	Status                EccStatus `json:"status,omitempty"`
	AL                    string    `json:"al,omitempty"`
	ECCN                  string    `json:"eccn,omitempty"`
	MaterialIndexNumber   string    `json:"material_index_number,omitempty"`
	AssessorContactPerson string    `json:"assessor_contact_person,omitempty"`
	AssessorDepartment    string    `json:"assessor_department,omitempty"`
	AssessmentDate        string    `json:"assessment_date,omitempty"`
	Comment               string    `json:"comment,omitempty"`
}

// Release is one released version of a component. Identity for duplicate
// detection is the (Name, Version) pair, case-sensitive.
type Release struct {
	ID          string `json:"id"`
	ComponentID string `json:"component_id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	VendorID    string `json:"vendor_id,omitempty"`
	CPEID       string `json:"cpe_id,omitempty"`
	ReleaseDate string `json:"release_date,omitempty"`

	Languages         []string `json:"languages,omitempty"`
	OperatingSystems  []string `json:"operating_systems,omitempty"`
	SoftwarePlatforms []string `json:"software_platforms,omitempty"`
	MainLicenseIDs    []string `json:"main_license_ids,omitempty"`

	SourceCodeDownloadURL string `json:"source_code_download_url,omitempty"`
	BinaryDownloadURL     string `json:"binary_download_url,omitempty"`

	// Directed relationship edges to other releases. May contain cycles;
	// traversal must guard against revisiting ids on the current path.
	ReleaseIDToRelationship map[string]ReleaseRelationship `json:"release_id_to_relationship,omitempty"`

	Attachments         []Attachment         `json:"attachments,omitempty"`
	ClearingInformation *ClearingInformation `json:"clearing_information,omitempty"`
	EccInformation      *EccInformation      `json:"ecc_information,omitempty"`
	ClearingState       ClearingState        `json:"clearing_state,omitempty"`
	MainlineState       MainlineState        `json:"mainline_state,omitempty"`

	Contributors []string            `json:"contributors,omitempty"`
	Moderators   []string            `json:"moderators,omitempty"`
	Subscribers  []string            `json:"subscribers,omitempty"`
	Roles        map[string][]string `json:"roles,omitempty"`
	ExternalIDs  map[string]string   `json:"external_ids,omitempty"`

	CreatedBy string `json:"created_by,omitempty"`
	CreatedOn string `json:"created_on,omitempty"`
	ETag      int64  `json:"-"`
}

// ProjectReleaseRelationship is the usage record a project keeps per release
type ProjectReleaseRelationship struct {
	Relation      ReleaseRelationship `json:"relation"`
	MainlineState MainlineState       `json:"mainline_state,omitempty"`
	Comment       string              `json:"comment,omitempty"`
}

// Project is an external consumer of releases. Only the fields the engine
// rewrites are modeled; the full project record is owned elsewhere.
type Project struct {
	ID                string                                `json:"id"`
	Name              string                                `json:"name"`
	Version           string                                `json:"version,omitempty"`
	ReleaseIDToUsage  map[string]ProjectReleaseRelationship `json:"release_id_to_usage,omitempty"`
	ClearingRequestID string                                `json:"clearing_request_id,omitempty"`
	ETag              int64                                 `json:"-"`
}

// AttachmentUsage records which release owns and which release consumes an
// attachment. A single record may reference a release on either side or both.
type AttachmentUsage struct {
	ID                  string `json:"id"`
	OwnerReleaseID      string `json:"owner_release_id,omitempty"`
	UsedByReleaseID     string `json:"used_by_release_id,omitempty"`
	AttachmentContentID string `json:"attachment_content_id"`
	ETag                int64  `json:"-"`
}

// ReleaseVulnerabilityRelation links a release to a vulnerability record
type ReleaseVulnerabilityRelation struct {
	ID              string `json:"id"`
	ReleaseID       string `json:"release_id"`
	VulnerabilityID string `json:"vulnerability_id"`
	ETag            int64  `json:"-"`
}

// VulnerabilityCheckStatus is one assessment entry in a project rating
type VulnerabilityCheckStatus struct {
	CheckedBy string `json:"checked_by,omitempty"`
	CheckedOn string `json:"checked_on,omitempty"`
	Status    string `json:"status,omitempty"`
	Comment   string `json:"comment,omitempty"`
}

// ProjectVulnerabilityRating nests assessment lists under vulnerability id
// and then release id.
type ProjectVulnerabilityRating struct {
	ID        string                                           `json:"id"`
	ProjectID string                                           `json:"project_id"`
	Statuses  map[string]map[string][]VulnerabilityCheckStatus `json:"vulnerability_id_to_release_id_to_status,omitempty"`
	ETag      int64                                            `json:"-"`
}

// ModerationRequest is a pending proposed edit awaiting approval. Additions
// and Deletions carry the proposed field-level delta against the current
// document; exactly one of the component/release payload pairs is set,
// matching DocumentKind.
type ModerationRequest struct {
	ID             string          `json:"id"`
	DocumentID     string          `json:"document_id"`
	DocumentKind   DocumentKind    `json:"document_kind"`
	RequestingUser string          `json:"requesting_user"`
	State          ModerationState `json:"state"`

	ComponentAdditions *Component `json:"component_additions,omitempty"`
	ComponentDeletions *Component `json:"component_deletions,omitempty"`
	ReleaseAdditions   *Release   `json:"release_additions,omitempty"`
	ReleaseDeletions   *Release   `json:"release_deletions,omitempty"`

	Timestamp time.Time `json:"timestamp"`
	ETag      int64     `json:"-"`
}

// FieldChange is one field-level (old, new) pair inside a change-log entry.
// Values are JSON-serialized snapshots of the field before and after.
type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// ChangeLogEntry is one append-only audit record. Entries are never mutated
// or deleted and are never read back as a source of entity state.
type ChangeLogEntry struct {
	ID                    int64         `json:"id"`
	DocumentID            string        `json:"document_id"`
	DocumentType          DocumentKind  `json:"document_type"`
	Operation             Operation     `json:"operation"`
	Changes               []FieldChange `json:"changes,omitempty"`
	UserEdited            string        `json:"user_edited"`
	Timestamp             time.Time     `json:"timestamp"`
	ReferenceDocID        string        `json:"reference_doc_id,omitempty"`
	ReferenceDocOperation Operation     `json:"reference_doc_operation,omitempty"`
}
