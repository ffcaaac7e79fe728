package catalog

import "github.com/maxkimambo/cgaprov/internal/shell"

// Command templates for the OpenCGA CLI. {opencga}, {user} and {password}
// come from the configuration; the rest from task parameters.
var (
	ProjectCreateTemplate = shell.Template{
		"{opencga}", "projects", "create",
		"--user", "{user}", "--password", "{password}",
		"-n", "{name}", "-o", "{organization}", "-d", "{description}", "-a", "{alias}",
		"--output-format", "IDS",
	}

	ProjectInfoTemplate = shell.Template{
		"{opencga}", "projects", "info",
		"--user", "{user}", "--password", "{password}",
		"--project-id", "{user}@{alias}",
		"--output-format", "IDS",
	}

	StudyCreateTemplate = shell.Template{
		"{opencga}", "studies", "create",
		"--user", "{user}", "--password", "{password}",
		"--name", "{name}", "-d", "{description}", "-a", "{alias}", "--type", "{type}",
		"--project-id", "{user}@{project-alias}",
		"--output-format", "IDS",
	}

	StudyInfoTemplate = shell.Template{
		"{opencga}", "studies", "info",
		"--user", "{user}", "--password", "{password}",
		"--study-id", "{user}@{project-alias}/{alias}",
		"--output-format", "IDS",
	}
)
