package urls

// Documentation URLs for the Pro DJ Link protocol.
// All URLs point to the DJ Link Ecosystem Analysis at https://djl-analysis.deepsymmetry.org/

// ProtocolAnalysis is the reverse-engineered description of the whole
// Pro DJ Link protocol.
const ProtocolAnalysis = "https://djl-analysis.deepsymmetry.org/"

// DeviceAnnouncements describes the keep-alive packets devices broadcast on
// port 50000, including the field layout prolink decodes.
const DeviceAnnouncements = "https://djl-analysis.deepsymmetry.org/djl-analysis/startup.html"
