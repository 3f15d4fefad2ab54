package common

// Record property keys
const (
	TagSourceID             = "sourceID"
	TagUUID                 = "uuid"
	TagIngestionDate        = "ingestionDate"
	TagDataset              = "dataset"
	TagOrbitDirection       = "orbitDirection"
	TagRelativeOrbit        = "relativeOrbit"
	TagOrbit                = "orbit"
	TagProductType          = "productType"
	TagCloudCoverPercentage = "cloudCoverPercentage"
)
