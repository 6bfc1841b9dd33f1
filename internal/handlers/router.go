package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes навешивает все маршруты API на r. Middleware подключает вызывающий.
func Routes(r chi.Router, tasks *TaskHandler, tags *TagHandler, queue *QueueHandler) {
	r.Get("/health", tasks.HealthCheck)

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", tasks.GetTasks)  // GET /tasks
		r.Post("/", tasks.PostTask) // POST /tasks

		r.Get("/page", tasks.GetTasksPage)        // GET /tasks/page
		r.Get("/hierarchy", tasks.GetHierarchy)   // GET /tasks/hierarchy
		r.Get("/search", tasks.SearchTasks)       // GET /tasks/search
		r.Get("/search/ids", tasks.SearchTaskIDs) // GET /tasks/search/ids

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", tasks.GetTaskByID)       // GET /tasks/{id}
			r.Put("/", tasks.UpdateTaskByID)    // PUT /tasks/{id}
			r.Delete("/", tasks.DeleteTaskByID) // DELETE /tasks/{id}

			r.Post("/restore", tasks.RestoreTask)     // POST /tasks/{id}/restore
			r.Delete("/purge", tasks.PurgeTask)       // DELETE /tasks/{id}/purge
			r.Post("/duplicate", tasks.DuplicateTask) // POST /tasks/{id}/duplicate
		})
	})

	r.Route("/tags", func(r chi.Router) {
		r.Get("/", tags.GetTags)
		r.Post("/", tags.PostTag)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", tags.GetTagByID)
			r.Put("/", tags.UpdateTagByID)
			r.Delete("/", tags.DeleteTagByID)
		})
	})

	r.Route("/queue", func(r chi.Router) {
		r.Get("/", queue.GetQueue)
		r.Post("/", queue.PostQueueEntry)
		r.Delete("/", queue.ClearQueue)

		r.Post("/complete", queue.CompleteQueue)
		r.Put("/order", queue.ReorderQueue)

		r.Route("/{taskID}", func(r chi.Router) {
			r.Delete("/", queue.DeleteQueueEntry)
			r.Put("/position", queue.MoveQueueEntry)
		})
	})
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	responseWithError(w, http.StatusNotFound, "маршрут не найден")
}
