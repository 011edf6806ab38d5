package catalog

// Baseline control sets. SOC2 follows the Trust Service Criteria
// structure; ISO 27001 covers a subset of the 2022 Annex A themes.
// These are starting points for an engagement, not a substitute for
// the published standards.

func (c *MemoryCatalog) seed() {
	c.AddFramework(Framework{
		Key:         "soc2",
		Name:        "SOC 2 Trust Service Criteria",
		Version:     "2017 (rev. 2022)",
		Description: "AICPA Trust Service Criteria for security, availability, and confidentiality",
	})
	c.AddFramework(Framework{
		Key:         "iso27001",
		Name:        "ISO/IEC 27001",
		Version:     "2022",
		Description: "Information security management system requirements, Annex A controls",
	})

	for _, ctl := range soc2Controls {
		c.AddControl(ctl)
	}
	for _, ctl := range iso27001Controls {
		c.AddControl(ctl)
	}
}

var soc2Controls = []Control{
	{FrameworkKey: "soc2", Code: "CC1.1", Category: "Control Environment",
		Title:       "Commitment to Integrity and Ethical Values",
		Description: "The entity demonstrates a commitment to integrity and ethical values.",
		Guidance:    "Maintain a code of conduct and document security policy acknowledgement for all personnel."},
	{FrameworkKey: "soc2", Code: "CC1.2", Category: "Control Environment",
		Title:       "Board Oversight",
		Description: "The board of directors demonstrates independence from management and exercises oversight.",
		Guidance:    "Document governance structure and oversight responsibilities."},
	{FrameworkKey: "soc2", Code: "CC2.1", Category: "Communication & Information",
		Title:       "Quality Information",
		Description: "The entity obtains or generates relevant, quality information to support internal control.",
		Guidance:    "Maintain current security documentation and distribute policy updates."},
	{FrameworkKey: "soc2", Code: "CC3.1", Category: "Risk Assessment",
		Title:       "Risk Identification",
		Description: "The entity specifies objectives to enable identification and assessment of risks.",
		Guidance:    "Run a periodic risk assessment and record findings with owners."},
	{FrameworkKey: "soc2", Code: "CC3.2", Category: "Risk Assessment",
		Title:       "Fraud Risk Assessment",
		Description: "The entity considers the potential for fraud in assessing risks.",
		Guidance:    "Include fraud scenarios in the annual risk assessment."},
	{FrameworkKey: "soc2", Code: "CC4.1", Category: "Monitoring Activities",
		Title:       "Continuous Monitoring",
		Description: "The entity selects, develops, and performs ongoing evaluations of internal control.",
		Guidance:    "Keep automated monitoring and alerting in place with documented thresholds."},
	{FrameworkKey: "soc2", Code: "CC5.1", Category: "Control Activities",
		Title:       "Control Selection",
		Description: "The entity selects and develops control activities that mitigate risks.",
		Guidance:    "Map technical and administrative controls to assessed risks."},
	{FrameworkKey: "soc2", Code: "CC6.1", Category: "Logical & Physical Access",
		Title:       "Logical Access Security",
		Description: "The entity implements logical access security software, infrastructure, and architectures.",
		Guidance:    "Enforce authentication and role-based authorization on all protected resources."},
	{FrameworkKey: "soc2", Code: "CC6.2", Category: "Logical & Physical Access",
		Title:       "User Registration and Authorization",
		Description: "New internal and external users are registered and authorized prior to access.",
		Guidance:    "Document provisioning and deprovisioning procedures with approvals."},
	{FrameworkKey: "soc2", Code: "CC6.3", Category: "Logical & Physical Access",
		Title:       "Access Removal",
		Description: "The entity removes access to protected assets when no longer required.",
		Guidance:    "Automate revocation on role change and termination; review quarterly."},
	{FrameworkKey: "soc2", Code: "CC6.6", Category: "Logical & Physical Access",
		Title:       "Boundary Protection",
		Description: "The entity implements controls to prevent or detect unauthorized access from outside its boundaries.",
		Guidance:    "Maintain firewall rules, network segmentation, and encrypted transport."},
	{FrameworkKey: "soc2", Code: "CC7.1", Category: "System Operations",
		Title:       "Vulnerability Management",
		Description: "The entity uses detection and monitoring procedures to identify vulnerabilities.",
		Guidance:    "Run scheduled vulnerability scans and track remediation to closure."},
	{FrameworkKey: "soc2", Code: "CC7.2", Category: "System Operations",
		Title:       "Anomaly Monitoring",
		Description: "The entity monitors system components for anomalies indicative of malicious acts.",
		Guidance:    "Centralize security event logging with alerting and retention."},
	{FrameworkKey: "soc2", Code: "CC7.3", Category: "System Operations",
		Title:       "Incident Evaluation",
		Description: "The entity evaluates security events to determine whether they are incidents.",
		Guidance:    "Maintain an incident response procedure with severity definitions."},
	{FrameworkKey: "soc2", Code: "CC8.1", Category: "Change Management",
		Title:       "Controlled Changes",
		Description: "The entity authorizes, designs, tests, and implements changes to infrastructure and software.",
		Guidance:    "Require peer review and approval before production changes."},
	{FrameworkKey: "soc2", Code: "CC9.1", Category: "Risk Mitigation",
		Title:       "Business Disruption Mitigation",
		Description: "The entity identifies and develops risk mitigation activities for business disruptions.",
		Guidance:    "Document vendor and partner risk management procedures."},
	{FrameworkKey: "soc2", Code: "A1.1", Category: "Availability",
		Title:       "Capacity Management",
		Description: "The entity maintains and monitors current processing capacity.",
		Guidance:    "Record capacity planning reviews and utilization monitoring."},
	{FrameworkKey: "soc2", Code: "A1.2", Category: "Availability",
		Title:       "Recovery Infrastructure",
		Description: "The entity designs, implements, and tests recovery procedures.",
		Guidance:    "Test backup restoration and disaster recovery at least annually."},
	{FrameworkKey: "soc2", Code: "C1.1", Category: "Confidentiality",
		Title:       "Confidential Information Identification",
		Description: "The entity identifies and maintains confidential information to meet objectives.",
		Guidance:    "Apply a data classification scheme and label confidential assets."},
	{FrameworkKey: "soc2", Code: "C1.2", Category: "Confidentiality",
		Title:       "Confidential Information Disposal",
		Description: "The entity disposes of confidential information to meet objectives.",
		Guidance:    "Implement and evidence secure deletion procedures."},
}

var iso27001Controls = []Control{
	{FrameworkKey: "iso27001", Code: "A.5.1", Category: "Organizational Controls",
		Title:       "Policies for Information Security",
		Description: "Information security policy and topic-specific policies shall be defined and approved.",
		Guidance:    "Publish an approved information security policy, reviewed annually."},
	{FrameworkKey: "iso27001", Code: "A.5.9", Category: "Organizational Controls",
		Title:       "Inventory of Information Assets",
		Description: "An inventory of information and other associated assets shall be developed and maintained.",
		Guidance:    "Keep an asset register with owners and classification."},
	{FrameworkKey: "iso27001", Code: "A.5.15", Category: "Organizational Access",
		Title:       "Access Control",
		Description: "Rules to control physical and logical access to information shall be established.",
		Guidance:    "Define an access-control policy covering joiner/mover/leaver events."},
	{FrameworkKey: "iso27001", Code: "A.5.24", Category: "Organizational Controls",
		Title:       "Incident Management Planning",
		Description: "The organization shall plan and prepare for managing information security incidents.",
		Guidance:    "Maintain an incident management plan with roles and escalation paths."},
	{FrameworkKey: "iso27001", Code: "A.6.3", Category: "People Controls",
		Title:       "Security Awareness Training",
		Description: "Personnel shall receive appropriate information security awareness education and training.",
		Guidance:    "Track completion of annual security training for all staff."},
	{FrameworkKey: "iso27001", Code: "A.6.5", Category: "People Controls",
		Title:       "Responsibilities After Termination",
		Description: "Security responsibilities that remain valid after termination shall be defined and enforced.",
		Guidance:    "Include security obligations in offboarding checklists."},
	{FrameworkKey: "iso27001", Code: "A.7.2", Category: "Physical Controls",
		Title:       "Physical Entry",
		Description: "Secure areas shall be protected by appropriate entry controls and access points.",
		Guidance:    "Evidence badge access configuration and visitor logs."},
	{FrameworkKey: "iso27001", Code: "A.8.2", Category: "Technological Access",
		Title:       "Privileged Access Rights",
		Description: "The allocation and use of privileged access rights shall be restricted and managed.",
		Guidance:    "Review privileged accounts quarterly; require MFA for admin access."},
	{FrameworkKey: "iso27001", Code: "A.8.8", Category: "Technological Controls",
		Title:       "Management of Technical Vulnerabilities",
		Description: "Information about technical vulnerabilities shall be obtained and appropriate measures taken.",
		Guidance:    "Subscribe to advisories and patch within documented SLAs."},
	{FrameworkKey: "iso27001", Code: "A.8.13", Category: "Technological Controls",
		Title:       "Information Backup",
		Description: "Backup copies of information shall be maintained and regularly tested.",
		Guidance:    "Retain backup job logs and restoration test results."},
	{FrameworkKey: "iso27001", Code: "A.8.15", Category: "Technological Controls",
		Title:       "Logging",
		Description: "Logs recording activities, exceptions, and events shall be produced, stored, and protected.",
		Guidance:    "Centralize logs with integrity protection and defined retention."},
	{FrameworkKey: "iso27001", Code: "A.8.32", Category: "Change Management",
		Title:       "Change Management",
		Description: "Changes to information processing facilities shall be subject to change management procedures.",
		Guidance:    "Evidence change tickets with approval and rollback plans."},
}
