package tasks

// DefineTasks registers all available tasks
func DefineTasks() {
	// Register general tasks
	RegisterHandler(LogInfoTask.TaskID(), LogInfoTask.HandleExecution)

	// Register premium boost maintenance tasks
	RegisterHandler(ExpirePremiumJobsTask.TaskID(), ExpirePremiumJobsTask.HandleExecution)
	RegisterHandler(ExpireStalePendingPaymentsTask.TaskID(), ExpireStalePendingPaymentsTask.HandleExecution)
}
