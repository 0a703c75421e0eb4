package api

import "github.com/gin-gonic/gin"

func (s *Server) registerRoutes(router *gin.Engine) {
	router.GET("/healthz", s.healthz)

	api := router.Group("/api")

	directories := api.Group("/directories")
	{
		directories.GET("/", s.listDirectories)
		directories.POST("/", s.createDirectory)
		directories.GET("/search/", s.searchDirectories)

		directories.GET("/:id/", s.getDirectory)
		directories.PUT("/:id/", s.updateDirectory)
		directories.PATCH("/:id/", s.updateDirectory)
		directories.DELETE("/:id/", s.deleteDirectoryRecursive)

		directories.POST("/:id/create_subdirectory/", s.createSubdirectory)
		directories.GET("/:id/sub_directories/", s.listSubdirectories)
		directories.GET("/:id/files/", s.listDirectoryFiles)
		directories.DELETE("/:id/delete_directory/", s.deleteDirectory)
		directories.POST("/:id/delete_directory_and_contents/", s.deleteDirectoryRecursive)
	}

	files := api.Group("/files")
	{
		files.GET("/", s.listFiles)
		files.POST("/", s.uploadFile)
		files.GET("/search/", s.searchFiles)

		files.GET("/:id/", s.getFile)
		files.PUT("/:id/", s.updateFile)
		files.PATCH("/:id/", s.updateFile)
		files.DELETE("/:id/", s.deleteFile)
		files.GET("/:id/download/", s.downloadFile)
	}
}
